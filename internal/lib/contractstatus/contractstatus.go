// Package contractstatus классифицирует контракт по дате окончания и текущему
// моменту и решает, какое уведомление нужно создать или закрыть.
// Статус является чистой функцией (endDate, now); расписаний и истории переходов нет.
package contractstatus

import (
	"time"

	"github.com/magabrotheeeer/parking-manager/internal/models"
)

// DefaultThresholdDays за сколько дней до окончания контракт считается истекающим.
const DefaultThresholdDays = 5

const day = 24 * time.Hour

const (
	messageExpiringSoon = "El contrato vencerá en breve. Recuerda contactar al cliente para renovar."
	messageExpired      = "El contrato está vencido. Debe renovar el pago de la mensualidad."
)

// DaysLeft возвращает оставшиеся дни до окончания, округлённые вверх.
// Для истёкших контрактов результат не положителен.
func DaysLeft(endDate, now time.Time) int {
	d := endDate.Sub(now)
	days := int(d / day)
	if d > 0 && d%day != 0 {
		days++
	}
	return days
}

// Compute возвращает статус контракта на момент now.
//
//	EXPIRED        endDate <= now
//	EXPIRING_SOON  ceil((endDate - now) / day) <= thresholdDays
//	ACTIVE         иначе
func Compute(endDate, now time.Time, thresholdDays int) models.ContractStatus {
	if !endDate.After(now) {
		return models.ContractExpired
	}
	if DaysLeft(endDate, now) <= thresholdDays {
		return models.ContractExpiringSoon
	}
	return models.ContractActive
}

// Decision описывает действие над уведомлениями контракта.
type Decision struct {
	Status models.ContractStatus
	// Resolve закрыть все ожидающие уведомления контракта.
	Resolve bool
	// AlertType и Message заполнены, когда нужно создать или обновить уведомление.
	AlertType models.AlertType
	Message   string
}

// Decide переводит статус в действие над уведомлениями.
// Переход EXPIRING_SOON -> EXPIRED создаёт второе уведомление другого типа,
// первое остаётся ожидающим до возврата контракта в ACTIVE.
func Decide(endDate, now time.Time, thresholdDays int) Decision {
	status := Compute(endDate, now, thresholdDays)
	switch status {
	case models.ContractExpired:
		return Decision{Status: status, AlertType: models.AlertExpired, Message: messageExpired}
	case models.ContractExpiringSoon:
		return Decision{Status: status, AlertType: models.AlertExpiringSoon, Message: messageExpiringSoon}
	default:
		return Decision{Status: status, Resolve: true}
	}
}
