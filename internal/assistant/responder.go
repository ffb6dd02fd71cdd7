package assistant

import (
	"context"

	"go.uber.org/zap"

	"github.com/hamed0406/staffbot/internal/ai"
	"github.com/hamed0406/staffbot/internal/domain"
)

// Apology replaces any reply the model could not produce.
const Apology = "Извини, сейчас я не могу ответить. Попробуй чуть позже."

const staffPrompt = `Ты ассистент сети кафе "Донер Хом" в WhatsApp и общаешься с сотрудником точки.
Отвечай коротко, дружелюбно и по-русски.
Напоминай команды, если сотрудник их не знает:
- "смена старт" / "пришёл" - начать смену;
- "смена стоп" / "ушёл" - закончить смену;
- "отчёт: ..." - отправить отчёт;
- "питание: ..." - записать питание;
- "статус" - узнать свой статус.
Не выдумывай данные о сменах и отчётах, у тебя нет к ним доступа.`

const managerPrompt = `Ты ассистент руководителя сети кафе "Донер Хом" в WhatsApp.
Отвечай кратко, по делу и по-русски.
Команды руководителя:
- "рассылка: текст" - отправить сообщение всем сотрудникам;
- "статистика" - сколько человек на смене и сколько отчётов;
- "добавить: +491234567890" - добавить сотрудника.
Помогай формулировать объявления и задачи для персонала.`

// Prompt depends on role only.
func Prompt(role domain.Role) string {
	if role == domain.RoleManager {
		return managerPrompt
	}
	return staffPrompt
}

type Responder struct {
	Logger *zap.Logger
	AI     ai.Completer
}

func NewResponder(l *zap.Logger, c ai.Completer) *Responder {
	return &Responder{Logger: l, AI: c}
}

// Reply never fails: errors from the model degrade to Apology.
func (r *Responder) Reply(ctx context.Context, role domain.Role, text string) string {
	out, err := r.AI.Complete(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: Prompt(role)},
		{Role: ai.RoleUser, Content: text},
	})
	if err != nil {
		r.Logger.Warn("ai_reply_failed", zap.String("role", string(role)), zap.Error(err))
		return Apology
	}
	return out
}
