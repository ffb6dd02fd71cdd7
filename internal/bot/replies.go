package bot

import (
	"fmt"

	"github.com/hamed0406/staffbot/internal/domain"
)

const (
	replyAccessDenied  = "❗️Доступ ограничен. Сообщите свой номер руководителю для добавления в список сотрудников."
	replyShiftStarted  = "✅ Смена начата и записана в таблицу. Хорошей работы!"
	replyShiftStopped  = "🕘 Смена завершена и записана в таблицу. Не забудь отчёт и питание."
	replyReportSaved   = "📝 Отчёт сохранён и записан в таблицу. Спасибо!"
	replyMealSaved     = "🍽 Информация о питании сохранена. Спасибо!"
	replyBroadcastSent = "📣 Рассылка отправлена всем сотрудникам."
	replyAddUsage      = "⚠️ Укажи номер вида: 'добавить: +491234567890'"

	defaultBroadcast = "Сообщение от руководителя."
	notOnShift       = "не на смене"

	statusStarted = "начал смену"
	statusStopped = "закончил смену"

	previewLimit = 120
)

func replyStatus(status string) string {
	return "📊 Статус: " + status
}

func replyStats(onShift, reports int) string {
	return fmt.Sprintf("📈 На смене сейчас: %d. Всего отчётов за сегодня: %d.", onShift, reports)
}

func replyStaffAdded(phone string) string {
	return "✅ Добавлен сотрудник: " + domain.DisplayPhone(phone)
}

func unknownSenderAlert(phone, text string) string {
	p := preview(text)
	if p == "" {
		p = "(пусто)"
	}
	return fmt.Sprintf("⚠️ Новый номер %s написал боту, но не найден в STAFF_PHONES. "+
		"Проверьте, добавлен ли он в разрешённый список Meta и обновите переменную окружения.\n"+
		"Сообщение: \"%s\"", domain.DisplayPhone(phone), p)
}

// preview cuts text to previewLimit runes, ellipsis included.
func preview(text string) string {
	r := []rune(text)
	if len(r) <= previewLimit {
		return text
	}
	return string(r[:previewLimit-3]) + "..."
}
