package bot

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

const locationButtonText = "📍 Enviar minha localização"

// PresetKeyboard is the reply keyboard shown with the help message
func PresetKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Salvador"),
			tgbotapi.NewKeyboardButton("Recife"),
			tgbotapi.NewKeyboardButton("Fortaleza"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Natal"),
			tgbotapi.NewKeyboardButton("Rio de Janeiro"),
			tgbotapi.NewKeyboardButton("Florianópolis"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonLocation(locationButtonText),
		),
	)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = false
	return keyboard
}
