package service

import (
	"context"

	"baraholka/internal/domain"
	"baraholka/internal/metrics"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

type NotificationService struct {
	notificationRepo NotificationRepoIn
}

func NewNotificationService(notificationRepo NotificationRepoIn) NotificationServiceIn {
	return &NotificationService{
		notificationRepo: notificationRepo,
	}
}

func (ns *NotificationService) Create(ctx context.Context, in *domain.Notification) (*domain.Notification, error) {
	notification, err := ns.notificationRepo.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	metrics.IncNotificationCreated()
	return notification, nil
}

func (ns *NotificationService) List(ctx context.Context, in *ListNotificationsDTO) (*NotificationPage, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}

	offset := in.Offset
	if offset < 0 {
		offset = 0
	}

	notifications, err := ns.notificationRepo.ListForOwner(ctx, in.OwnerID, in.UnreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}

	total, unread, err := ns.notificationRepo.Counts(ctx, in.OwnerID)
	if err != nil {
		return nil, err
	}

	return &NotificationPage{
		Notifications: notifications,
		Total:         total,
		UnreadCount:   unread,
	}, nil
}

func (ns *NotificationService) MarkRead(ctx context.Context, id int) error {
	return ns.notificationRepo.MarkRead(ctx, id)
}

func (ns *NotificationService) MarkAllRead(ctx context.Context, ownerID string) error {
	return ns.notificationRepo.MarkAllRead(ctx, ownerID)
}

func (ns *NotificationService) Delete(ctx context.Context, id int) error {
	return ns.notificationRepo.Delete(ctx, id)
}

func (ns *NotificationService) ClearRead(ctx context.Context, ownerID string) error {
	return ns.notificationRepo.ClearRead(ctx, ownerID)
}
