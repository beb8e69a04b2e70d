package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pool is a named roster of candidates an optimization draws from.
type Pool struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string      `gorm:"not null" json:"name"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Candidates []Candidate `gorm:"foreignKey:PoolID;constraint:OnDelete:CASCADE" json:"candidates,omitempty"`
}

// TableName specifies the table name for GORM
func (Pool) TableName() string {
	return "pools"
}

// BeforeCreate assigns an ID when the caller did not
func (p *Pool) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// CountByRole tallies candidates per role.
func CountByRole(candidates []Candidate) map[Role]int {
	counts := make(map[Role]int, len(Roles()))
	for _, c := range candidates {
		counts[c.Role]++
	}
	return counts
}
