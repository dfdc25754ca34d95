package engine

import "github.com/google/uuid"

// UserDataRecalculateEvent is fired after the data of a loaded user changed.
type UserDataRecalculateEvent struct {
	id       uuid.UUID
	username string
}

// NewUserDataRecalculateEvent returns a new UserDataRecalculateEvent.
func NewUserDataRecalculateEvent(id uuid.UUID, username string) *UserDataRecalculateEvent {
	return &UserDataRecalculateEvent{id: id, username: username}
}

// ID returns the identity of the recalculated user.
func (e *UserDataRecalculateEvent) ID() uuid.UUID { return e.id }

// Username returns the name of the recalculated user.
func (e *UserDataRecalculateEvent) Username() string { return e.username }

// GroupDataRecalculateEvent is fired after the data of a group changed.
// Users inheriting the group are affected, but no
// UserDataRecalculateEvent is fired for them.
type GroupDataRecalculateEvent struct {
	group string
}

// NewGroupDataRecalculateEvent returns a new GroupDataRecalculateEvent.
func NewGroupDataRecalculateEvent(group string) *GroupDataRecalculateEvent {
	return &GroupDataRecalculateEvent{group: group}
}

// Group returns the name of the recalculated group.
func (e *GroupDataRecalculateEvent) Group() string { return e.group }
