package notification

import (
	"context"
	"fmt"
	"strconv"

	"leadmarket/internal/logger"
	"leadmarket/internal/metrics"
	"leadmarket/internal/user"
)

// Mailer is the slice of the email service the trigger needs.
type Mailer interface {
	SendLowBalanceAlert(ctx context.Context, email, name string, balance int) error
}

type Service struct {
	repo   Repository
	users  user.Repository
	mailer Mailer
}

func NewService(repo Repository, users user.Repository, mailer Mailer) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		mailer: mailer,
	}
}

// CheckLowBalance fires after a debit. It picks the lowest threshold at or
// above the new balance and creates at most one unread notification per
// (user, threshold). Everything here is best-effort: a failure must never
// undo the debit that triggered it.
func (s *Service) CheckLowBalance(ctx context.Context, userID, newBalance int) {
	threshold := -1
	for _, t := range LowBalanceThresholds {
		if newBalance <= t {
			threshold = t
			break
		}
	}
	if threshold < 0 {
		return
	}

	exists, err := s.repo.HasUnreadLowBalance(ctx, userID, threshold)
	if err != nil {
		logger.Errorf("Low balance check failed for user %d: %v", userID, err)
		return
	}
	if exists {
		return
	}

	title := "Low LeadCoin balance"
	message := fmt.Sprintf("Your balance is down to %d LeadCoins.", newBalance)
	if newBalance == 0 {
		title = "You're out of LeadCoins"
		message = "Your balance is empty. Top up to keep unlocking leads."
	}

	_, err = s.repo.Create(ctx, userID, TypeLowBalance, title, message, map[string]interface{}{
		"threshold": threshold,
		"balance":   newBalance,
	})
	if err != nil {
		logger.Errorf("Failed to create low balance notification for user %d: %v", userID, err)
		return
	}

	metrics.RecordLowBalanceNotification(strconv.Itoa(threshold))
	logger.Infof("Low balance notification created: user=%d threshold=%d balance=%d", userID, threshold, newBalance)

	if threshold <= 5 {
		s.sendAlert(ctx, userID, newBalance)
	}
}

func (s *Service) sendAlert(ctx context.Context, userID, balance int) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		logger.Errorf("Cannot load user %d for low balance email: %v", userID, err)
		return
	}

	if err := s.mailer.SendLowBalanceAlert(ctx, u.Email, u.Name, balance); err != nil {
		logger.Errorf("Low balance email to %s failed: %v", u.Email, err)
	}
}

// BalanceRecovered supersedes outstanding low_balance notifications once a
// credit lifts the balance above the highest threshold.
func (s *Service) BalanceRecovered(ctx context.Context, userID, newBalance int) {
	top := LowBalanceThresholds[len(LowBalanceThresholds)-1]
	if newBalance <= top {
		return
	}

	if err := s.repo.MarkLowBalanceRead(ctx, userID); err != nil {
		logger.Errorf("Failed to supersede low balance notifications for user %d: %v", userID, err)
	}
}

func (s *Service) NotifyCoinsReceived(ctx context.Context, userID, amount int, description string) {
	message := fmt.Sprintf("%d LeadCoins were added to your account.", amount)
	if description != "" {
		message += " " + description
	}

	_, err := s.repo.Create(ctx, userID, TypeCoinsReceived, "LeadCoins received", message, map[string]interface{}{
		"amount": amount,
	})
	if err != nil {
		logger.Errorf("Failed to create coins notification for user %d: %v", userID, err)
	}
}

func (s *Service) NotifyCouponClaimed(ctx context.Context, userID, coins int, code string) {
	message := fmt.Sprintf("Coupon %s claimed: %d LeadCoins credited.", code, coins)

	_, err := s.repo.Create(ctx, userID, TypeCouponClaimed, "Coupon claimed", message, map[string]interface{}{
		"code":  code,
		"coins": coins,
	})
	if err != nil {
		logger.Errorf("Failed to create coupon notification for user %d: %v", userID, err)
	}
}
