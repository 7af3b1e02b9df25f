package models

import "time"

// ContractStatus производный статус контракта, хранится в строке для быстрых выборок.
type ContractStatus string

const (
	ContractActive       ContractStatus = "ACTIVE"
	ContractExpiringSoon ContractStatus = "EXPIRING_SOON"
	ContractExpired      ContractStatus = "EXPIRED"
)

// AlertType вид уведомления по контракту.
type AlertType string

const (
	AlertExpiringSoon AlertType = "EXPIRING_SOON"
	AlertExpired      AlertType = "EXPIRED"
)

// AlertStatus состояние уведомления.
type AlertStatus string

const (
	AlertPending  AlertStatus = "PENDING"
	AlertResolved AlertStatus = "RESOLVED"
)

// DefaultPlanName присваивается контракту, если план не указан.
const DefaultPlanName = "Mensualidad"

// Contract ежемесячное соглашение между клиентом и площадкой.
type Contract struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id"`
	SiteID          string         `json:"site_id"`
	StartDate       time.Time      `json:"start_date"`
	EndDate         time.Time      `json:"end_date"`
	Status          ContractStatus `json:"status"`
	PlanName        string         `json:"plan_name"`
	MonthlyFee      int64          `json:"monthly_fee"`
	IsRecurring     bool           `json:"is_recurring"`
	LastPaymentDate time.Time      `json:"last_payment_date"`
	NextPaymentDate time.Time      `json:"next_payment_date"`
	CreatedAt       time.Time      `json:"created_at"`

	Client *User           `json:"client,omitempty"`
	Site   *Site           `json:"site,omitempty"`
	Alerts []ContractAlert `json:"alerts,omitempty"`
}

// ContractAlert уведомление о скором или наступившем окончании контракта.
// Пара (ContractID, AlertType) уникальна.
type ContractAlert struct {
	ID         string      `json:"id"`
	ContractID string      `json:"contract_id"`
	AlertType  AlertType   `json:"alert_type"`
	Status     AlertStatus `json:"status"`
	Message    string      `json:"message"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	ResolvedAt *time.Time  `json:"resolved_at,omitempty"`

	Contract *Contract `json:"contract,omitempty"`
}

// AlertNotification сообщение о контрактном уведомлении, публикуемое в RabbitMQ.
type AlertNotification struct {
	AlertID     string    `json:"alert_id"`
	ContractID  string    `json:"contract_id"`
	AlertType   AlertType `json:"alert_type"`
	Message     string    `json:"message"`
	ClientEmail string    `json:"client_email"`
	ClientName  string    `json:"client_name"`
	SiteName    string    `json:"site_name"`
	EndDate     time.Time `json:"end_date"`
}

// NewClientContract проверенные данные для создания клиента с контрактом.
type NewClientContract struct {
	FullName   string
	Email      string
	SiteID     string
	StartDate  time.Time
	EndDate    time.Time
	MonthlyFee int64
	PlanName   string
}

// DummyClientContract используется для приёма данных из JSON-запроса.
// Даты приходят строками в формате RFC 3339 или 2006-01-02.
type DummyClientContract struct {
	FullName   string `json:"full_name" validate:"required,min=2"`
	Email      string `json:"email" validate:"required,email"`
	SiteID     string `json:"site_id" validate:"required,uuid"`
	StartDate  string `json:"start_date" validate:"required"`
	EndDate    string `json:"end_date" validate:"required"`
	MonthlyFee int64  `json:"monthly_fee" validate:"gte=0"`
	PlanName   string `json:"plan_name,omitempty"`
}

// Renewal параметры продления контракта. MonthlyFee == nil оставляет текущую плату.
type Renewal struct {
	NewEndDate  time.Time
	PaymentDate time.Time
	MonthlyFee  *int64
}

// DummyRenewal используется для приёма данных продления из JSON-запроса.
type DummyRenewal struct {
	NewEndDate  string `json:"new_end_date" validate:"required"`
	PaymentDate string `json:"payment_date" validate:"required"`
	MonthlyFee  *int64 `json:"monthly_fee,omitempty" validate:"omitempty,gte=0"`
}
