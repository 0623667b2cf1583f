package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a time-ordered identifier (UUID v7, v4 when v7 fails)
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	StoryID   ID
	DatasetID ID
)

func (id StoryID) String() string   { return ID(id).String() }
func (id DatasetID) String() string { return ID(id).String() }

// NewStoryID identifies one generated story
func NewStoryID() StoryID { return StoryID(NewID()) }

// ParseStoryID parses a string into StoryID
func ParseStoryID(s string) (StoryID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("story ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid story ID %q: %w", s, err)
	}
	return StoryID(s), nil
}
