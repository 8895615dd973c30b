package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"isp-inventory-backend/config"
	"isp-inventory-backend/models"

	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

// NotificationService отправляет почтовые уведомления.
// Все отправки best-effort: ошибки логируются и никогда не влияют
// на результат операции, которая их вызвала.
type NotificationService struct {
	db          *gorm.DB
	smtp        config.SMTPConfig
	frontendURL string
}

// NewNotificationService создает новый сервис уведомлений
func NewNotificationService(db *gorm.DB, cfg *config.Config) *NotificationService {
	return &NotificationService{
		db:          db,
		smtp:        cfg.SMTP,
		frontendURL: cfg.Server.FrontendURL,
	}
}

// Enabled возвращает true, если SMTP настроен
func (ns *NotificationService) Enabled() bool {
	return ns.smtp.Host != ""
}

// sendEmail отправляет одно письмо через SMTP
func (ns *NotificationService) sendEmail(to, subject, htmlBody string) error {
	from := ns.smtp.From
	if from == "" {
		from = ns.smtp.User
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", from, "ISP Inventory System")
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(ns.smtp.Host, ns.smtp.Port, ns.smtp.User, ns.smtp.Password)
	return d.DialAndSend(m)
}

// adminRecipients возвращает email всех активных админов и супервайзеров
func (ns *NotificationService) adminRecipients() ([]string, error) {
	var admins []models.User
	err := ns.db.Where("role IN ? AND is_active = ?",
		[]string{models.RoleAdmin, models.RoleSupervisor}, true).Find(&admins).Error
	if err != nil {
		return nil, err
	}

	emails := make([]string, 0, len(admins))
	for _, admin := range admins {
		emails = append(emails, admin.Email)
	}
	return emails, nil
}

// NotifyTransactionCreated уведомляет активных админов и супервайзеров о
// новой транзакции, ожидающей подтверждения. Вызывается после коммита и
// работает в отдельной горутине: создание транзакции уже успело завершиться,
// поэтому сбой отправки никак не влияет на ответ клиенту.
func (ns *NotificationService) NotifyTransactionCreated(transaction models.Transaction, staffName string, items []models.TransactionItem) {
	if !ns.Enabled() {
		return
	}

	go func() {
		recipients, err := ns.adminRecipients()
		if err != nil {
			log.Printf("Не удалось получить список получателей уведомления: %v", err)
			return
		}

		subject := fmt.Sprintf("Требуется подтверждение транзакции #%d", transaction.ID)
		body := ns.transactionApprovalBody(transaction, staffName, items)

		for _, to := range recipients {
			if err := ns.sendEmail(to, subject, body); err != nil {
				log.Printf("Не удалось отправить уведомление о транзакции %d на %s: %v", transaction.ID, to, err)
			}
		}
	}()
}

// SendLowStockAlert отправляет предупреждение о низких остатках всем активным
// админам и супервайзерам. Возвращает количество получателей.
func (ns *NotificationService) SendLowStockAlert(items []models.StockItem) (int, error) {
	recipients, err := ns.adminRecipients()
	if err != nil {
		return 0, err
	}

	subject := "Предупреждение о низких остатках — ISP Inventory System"
	body := ns.lowStockAlertBody(items)

	for _, to := range recipients {
		if err := ns.sendEmail(to, subject, body); err != nil {
			log.Printf("Не удалось отправить предупреждение о низких остатках на %s: %v", to, err)
		}
	}

	return len(recipients), nil
}

// SendWelcomeEmail отправляет приветственное письмо новому пользователю.
// Вызывается в горутине после успешной регистрации.
func (ns *NotificationService) SendWelcomeEmail(user models.User) {
	if !ns.Enabled() {
		return
	}

	go func() {
		subject := "Добро пожаловать в ISP Inventory System"
		body := fmt.Sprintf(`
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2>Добро пожаловать, %s!</h2>
				<p>Ваша учетная запись создана. Email для входа: <strong>%s</strong>, роль: <strong>%s</strong>.</p>
				<p><a href="%s/login">Войти в систему</a></p>
			</div>`,
			user.Name, user.Email, user.Role, ns.frontendURL)

		if err := ns.sendEmail(user.Email, subject, body); err != nil {
			log.Printf("Не удалось отправить приветственное письмо на %s: %v", user.Email, err)
		}
	}()
}

// transactionApprovalBody собирает HTML тело уведомления о новой транзакции
func (ns *NotificationService) transactionApprovalBody(transaction models.Transaction, staffName string, items []models.TransactionItem) string {
	var itemLines strings.Builder
	for _, item := range items {
		itemLines.WriteString(fmt.Sprintf("<li>Позиция #%d — количество: %d</li>", item.StockID, item.Quantity))
	}

	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2>Требуется подтверждение транзакции</h2>
			<p><strong>ID:</strong> #%d</p>
			<p><strong>Тип:</strong> %s</p>
			<p><strong>Сотрудник:</strong> %s</p>
			<p><strong>Дата:</strong> %s</p>
			<p><strong>Примечание:</strong> %s</p>
			<h3>Позиции:</h3>
			<ul>%s</ul>
			<p><a href="%s/transactions">Перейти к транзакциям</a></p>
		</div>`,
		transaction.ID, transaction.Type, staffName,
		transaction.CreatedAt.Format(time.DateOnly), transaction.Notes,
		itemLines.String(), ns.frontendURL)
}

// lowStockAlertBody собирает HTML тело предупреждения о низких остатках
func (ns *NotificationService) lowStockAlertBody(items []models.StockItem) string {
	var rows strings.Builder
	for _, item := range items {
		rows.WriteString(fmt.Sprintf(
			"<tr><td>%s</td><td>%d %s</td><td>%d %s</td><td>%s</td></tr>",
			item.Name, item.Quantity, item.Unit, item.MinStock, item.Unit, item.Location))
	}

	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2>Низкие остатки на складе</h2>
			<p>Остаток по следующим позициям не превышает минимальный порог:</p>
			<table border="1" cellpadding="6" cellspacing="0">
				<tr><th>Позиция</th><th>Остаток</th><th>Минимум</th><th>Расположение</th></tr>
				%s
			</table>
			<p>Пожалуйста, пополните запасы как можно скорее.</p>
		</div>`, rows.String())
}
