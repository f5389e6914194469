package model

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
)

// ID is a UUIDv7 tagged with the entity it identifies, so a ChoreID can
// never be passed where a UserID is expected.
type ID[T any] uuid.UUID

type (
	UserID             = ID[User]
	ChoreListID        = ID[ChoreList]
	ChoreID            = ID[Chore]
	ChoreActivityID    = ID[ChoreActivity]
	AbsenceID          = ID[Absence]
	SessionID          = ID[Session]
	PushSubscriptionID = ID[PushSubscription]
)

// NewID returns a fresh time-ordered id.
func NewID[T any]() ID[T] {
	return ID[T](uuid.Must(uuid.NewV7()))
}

func ParseID[T any](s string) (ID[T], error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID[T]{}, fmt.Errorf("parse id %q: %w", s, err)
	}
	return ID[T](u), nil
}

func (id ID[T]) String() string {
	return uuid.UUID(id).String()
}

func (id ID[T]) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id ID[T]) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID[T]) UnmarshalText(b []byte) error {
	parsed, err := ParseID[T](string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id ID[T]) Value() (driver.Value, error) {
	return id.String(), nil
}

func (id *ID[T]) Scan(src any) error {
	u := (*uuid.UUID)(id)
	return u.Scan(src)
}
