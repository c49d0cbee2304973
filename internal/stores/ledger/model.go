package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one completed control row
type Entry struct {
	RunID     uuid.UUID `json:"run_id"`
	Row       int       `json:"row"`        // 0-based data row index
	ControlID string    `json:"control_id"` // Control identifier of the row
	Model     string    `json:"model"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

// EntryModel represents the database model for ledger entries
type EntryModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"column:created_at"`

	RunID     string `gorm:"column:run_id;index;not null;size:36"`
	Row       int    `gorm:"column:row_index;not null"`
	ControlID string `gorm:"column:control_id;size:64"`
	Model     string `gorm:"column:model;size:128"`
	Prompt    string `gorm:"column:prompt;type:text"`
	Response  string `gorm:"column:response;type:text"`
	Attempts  int    `gorm:"column:attempts"`
}

// TableName sets the table name for GORM
func (EntryModel) TableName() string {
	return "control_completions"
}

func toModel(e *Entry) *EntryModel {
	return &EntryModel{
		CreatedAt: e.CreatedAt,
		RunID:     e.RunID.String(),
		Row:       e.Row,
		ControlID: e.ControlID,
		Model:     e.Model,
		Prompt:    e.Prompt,
		Response:  e.Response,
		Attempts:  e.Attempts,
	}
}

func fromModel(m *EntryModel) (*Entry, error) {
	runID, err := uuid.Parse(m.RunID)
	if err != nil {
		return nil, err
	}

	return &Entry{
		RunID:     runID,
		Row:       m.Row,
		ControlID: m.ControlID,
		Model:     m.Model,
		Prompt:    m.Prompt,
		Response:  m.Response,
		Attempts:  m.Attempts,
		CreatedAt: m.CreatedAt,
	}, nil
}
