package domain

import "time"

// AgentRole enumerates support-agent roles.
type AgentRole string

const (
	AgentRoleAgent AgentRole = "AGENT"
	AgentRoleAdmin AgentRole = "ADMIN"
)

// Agent is a human support agent who handles escalated tickets and curates
// knowledge-base articles.
type Agent struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         AgentRole
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
