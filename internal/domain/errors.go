package domain

import "errors"

var (
	// ErrNotFound — запрошенный пользователь или артист отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — попытка повторного создания записи.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnreachable — получатель недоступен навсегда (заблокировал бота).
	ErrUnreachable = errors.New("recipient unreachable")
)
