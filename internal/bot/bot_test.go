package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabuasmare/marebot/internal/chart"
	"github.com/tabuasmare/marebot/internal/models"
	"github.com/tabuasmare/marebot/internal/query"
	"github.com/tabuasmare/marebot/internal/store"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []tgbotapi.Chattable
	sendErr error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.sendErr
}

func (f *fakeSender) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeSender) photos() []tgbotapi.PhotoConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.PhotoConfig
	for _, c := range f.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			out = append(out, p)
		}
	}
	return out
}

type mockResolver struct {
	resolveFunc         func(ctx context.Context, userID int64, text string) (*query.Result, error)
	resolveLocationFunc func(ctx context.Context, coord models.Coordinate) (*query.Result, error)
	renderChartFunc     func(ctx context.Context, result *query.Result) (*chart.Chart, error)
}

func (m *mockResolver) Resolve(ctx context.Context, userID int64, text string) (*query.Result, error) {
	return m.resolveFunc(ctx, userID, text)
}

func (m *mockResolver) ResolveLocation(ctx context.Context, coord models.Coordinate) (*query.Result, error) {
	return m.resolveLocationFunc(ctx, coord)
}

func (m *mockResolver) RenderChart(ctx context.Context, result *query.Result) (*chart.Chart, error) {
	if m.renderChartFunc != nil {
		return m.renderChartFunc(ctx, result)
	}
	return &chart.Chart{Path: "graficos/" + chart.FileName(result.ChartLabel)}, nil
}

func textUpdate(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: userID},
			Chat: &tgbotapi.Chat{ID: userID},
			Text: text,
		},
	}
}

func commandUpdate(userID int64, command, args string) tgbotapi.Update {
	u := textUpdate(userID, command)
	if args != "" {
		u.Message.Text = command + " " + args
	}
	u.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command)}}
	return u
}

func placeResult(place string) *query.Result {
	return &query.Result{
		Query:      query.Query{Kind: query.KindPlace, Text: place, Place: place},
		Place:      place,
		ChartLabel: place,
		Text:       "🌊 *Maré para " + place + "*:",
	}
}

func newTestBot(resolver *mockResolver) (*Bot, *fakeSender, *store.MemoryStore) {
	sender := &fakeSender{}
	s := store.NewMemoryStore()
	return New(sender, resolver, s, time.Second), sender, s
}

func TestStartCommandSendsHelpWithKeyboard(t *testing.T) {
	b, sender, _ := newTestBot(&mockResolver{})

	b.HandleUpdate(context.Background(), commandUpdate(1, "/start", ""))

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, helpMessage, msgs[0].Text)
	assert.Equal(t, tgbotapi.ModeMarkdown, msgs[0].ParseMode)

	keyboard, ok := msgs[0].ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, keyboard.Keyboard, 3)
	assert.Equal(t, "Salvador", keyboard.Keyboard[0][0].Text)
	assert.Equal(t, "Florianópolis", keyboard.Keyboard[1][2].Text)
	assert.True(t, keyboard.Keyboard[2][0].RequestLocation)
	assert.True(t, keyboard.ResizeKeyboard)
}

func TestGreetingSendsHelp(t *testing.T) {
	b, sender, _ := newTestBot(&mockResolver{
		resolveFunc: func(context.Context, int64, string) (*query.Result, error) {
			return &query.Result{Query: query.Query{Kind: query.KindGreeting}}, nil
		},
	})

	b.HandleUpdate(context.Background(), textUpdate(1, "bom dia"))

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, helpMessage, msgs[0].Text)
	assert.Empty(t, sender.photos())
}

func TestTextQuerySendsTextThenChart(t *testing.T) {
	b, sender, _ := newTestBot(&mockResolver{
		resolveFunc: func(ctx context.Context, userID int64, text string) (*query.Result, error) {
			assert.Equal(t, int64(42), userID)
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline, "queries are bounded by a timeout")
			return placeResult(text), nil
		},
	})

	b.HandleUpdate(context.Background(), textUpdate(42, "Salvador"))

	sender.mu.Lock()
	require.Len(t, sender.sent, 2)
	first, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok, "text goes first")
	photo, ok := sender.sent[1].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	sender.mu.Unlock()

	assert.Equal(t, int64(42), first.ChatID)
	assert.Equal(t, "🌊 *Maré para Salvador*:", first.Text)
	assert.Equal(t, tgbotapi.ModeMarkdown, first.ParseMode)
	assert.Equal(t, tgbotapi.FilePath("graficos/grafico_mare_Salvador.png"), photo.File)
}

func TestChartFailureAddsNotice(t *testing.T) {
	b, sender, _ := newTestBot(&mockResolver{
		resolveFunc: func(_ context.Context, _ int64, text string) (*query.Result, error) {
			return placeResult(text), nil
		},
		renderChartFunc: func(context.Context, *query.Result) (*chart.Chart, error) {
			return nil, models.NewAssetNotFoundError("imagens/sand_and_sea.jpg", nil)
		},
	})

	b.HandleUpdate(context.Background(), textUpdate(1, "Recife"))

	msgs := sender.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "🌊 *Maré para Recife*:", msgs[0].Text)
	assert.Equal(t, "⚠️ Gráfico indisponível: background image not found: imagens/sand_and_sea.jpg", msgs[1].Text)
	assert.Empty(t, sender.photos())
}

func TestQueryErrorsAreMapped(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "not found",
			err:  models.NewNotFoundError("Atlantida", nil),
			want: "Cidade ou coordenadas não encontradas.",
		},
		{
			name: "tide provider",
			err:  models.NewProviderError("worldtides", "Invalid api key", nil),
			want: "⚠️ Erro ao consultar maré: Invalid api key",
		},
		{
			name: "weather malformed",
			err:  models.NewMalformedResponseError("openweather", "missing main readings"),
			want: "⚠️ Erro ao consultar clima: missing main readings",
		},
		{
			name: "invalid input",
			err:  models.NewInvalidInputError("Data inválida."),
			want: "Data inválida.",
		},
		{
			name: "anything else stays generic",
			err:  errors.New("dial tcp 10.0.0.1:443: secret detail"),
			want: unexpectedMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, sender, _ := newTestBot(&mockResolver{
				resolveFunc: func(context.Context, int64, string) (*query.Result, error) {
					return nil, tt.err
				},
			})

			b.HandleUpdate(context.Background(), textUpdate(1, "x"))

			msgs := sender.messages()
			require.Len(t, msgs, 1)
			assert.Equal(t, tt.want, msgs[0].Text)
			assert.Empty(t, msgs[0].ParseMode)
		})
	}
}

func TestLocationUpdate(t *testing.T) {
	b, sender, _ := newTestBot(&mockResolver{
		resolveLocationFunc: func(_ context.Context, coord models.Coordinate) (*query.Result, error) {
			assert.Equal(t, models.Coordinate{Latitude: -12.97, Longitude: -38.5}, coord)
			return &query.Result{Place: query.LocationLabel, ChartLabel: "Lat_-12.97_Lon_-38.50", Text: "🌊 *Maré para sua localização*:"}, nil
		},
	})

	update := textUpdate(5, "")
	update.Message.Location = &tgbotapi.Location{Latitude: -12.97, Longitude: -38.5}
	b.HandleUpdate(context.Background(), update)

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "🌊 *Maré para sua localização*:", msgs[0].Text)
	photos := sender.photos()
	require.Len(t, photos, 1)
	assert.Equal(t, tgbotapi.FilePath("graficos/grafico_mare_Lat_-12.97_Lon_-38.50.png"), photos[0].File)
}

func TestHistoryCommand(t *testing.T) {
	b, sender, s := newTestBot(&mockResolver{})

	b.HandleUpdate(context.Background(), commandUpdate(8, "/historico", ""))
	s.RecordHistory(8, "rio de janeiro")
	s.RecordHistory(8, "Lat -12.9, Lon -38.5")
	b.HandleUpdate(context.Background(), commandUpdate(8, "/historico", ""))

	msgs := sender.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Nenhuma consulta realizada ainda.", msgs[0].Text)
	assert.Equal(t, "📜 Histórico de consultas:\n- Rio De Janeiro\n- Lat -12.9, Lon -38.5", msgs[1].Text)
}

func TestAlertCommand(t *testing.T) {
	b, sender, s := newTestBot(&mockResolver{})

	b.HandleUpdate(context.Background(), commandUpdate(3, "/alerta", "salvador 0.6"))
	b.HandleUpdate(context.Background(), commandUpdate(3, "/alerta", "salvador"))
	b.HandleUpdate(context.Background(), commandUpdate(3, "/alerta", "salvador baixa"))
	b.HandleUpdate(context.Background(), commandUpdate(3, "/alerta", "rio de janeiro 0.4"))

	msgs := sender.messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "🔔 Alerta configurado para *Salvador* abaixo de *0.6m*", msgs[0].Text)
	assert.Equal(t, tgbotapi.ModeMarkdown, msgs[0].ParseMode)
	assert.Equal(t, "Uso: /alerta cidade limite\nExemplo: /alerta salvador 0.6", msgs[1].Text)
	assert.Equal(t, "O limite precisa ser um número. Ex: 0.5", msgs[2].Text)

	alert, ok := s.Alert(3)
	require.True(t, ok)
	assert.Equal(t, models.AlertConfig{Place: "rio de janeiro", Threshold: 0.4}, alert)
}

func TestNotify(t *testing.T) {
	b, sender, _ := newTestBot(&mockResolver{})

	require.NoError(t, b.Notify(context.Background(), 77, "🔔 *Alerta de Maré*"))

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(77), msgs[0].ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdown, msgs[0].ParseMode)

	sender.sendErr = errors.New("Forbidden: bot was blocked by the user")
	assert.Error(t, b.Notify(context.Background(), 77, "x"))
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	b, sender, _ := newTestBot(&mockResolver{
		resolveFunc: func(context.Context, int64, string) (*query.Result, error) {
			panic("nil map")
		},
	})

	assert.NotPanics(t, func() {
		b.HandleUpdate(context.Background(), textUpdate(1, "Natal"))
	})

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, unexpectedMessage, msgs[0].Text)
}

func TestRunHandlesUpdatesConcurrently(t *testing.T) {
	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(3)

	b, sender, _ := newTestBot(&mockResolver{
		resolveFunc: func(_ context.Context, _ int64, text string) (*query.Result, error) {
			started.Done()
			<-release
			return placeResult(text), nil
		},
	})

	updates := make(chan tgbotapi.Update, 3)
	for i := int64(1); i <= 3; i++ {
		updates <- textUpdate(i, "Natal")
	}
	close(updates)

	done := make(chan struct{})
	go func() {
		b.Run(context.Background(), updates)
		close(done)
	}()

	// all three handlers block at once, so they run concurrently
	started.Wait()
	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after updates closed")
	}
	assert.Len(t, sender.messages(), 3)
	assert.Len(t, sender.photos(), 3)
}

func TestIgnoresEmptyUpdates(t *testing.T) {
	b, sender, _ := newTestBot(&mockResolver{})

	b.HandleUpdate(context.Background(), tgbotapi.Update{})
	b.HandleUpdate(context.Background(), textUpdate(1, ""))

	assert.Empty(t, sender.sent)
}
