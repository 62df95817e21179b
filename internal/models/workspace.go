package models

// WorkspaceModel groups papers for one reading session. The active paper is the
// reading target; every other member paper is a commenting agent.
type WorkspaceModel struct {
	Base
	Name          string   `json:"name"          gorm:"not null"`
	PaperIDs      []string `json:"paperIds"      gorm:"type:longtext;serializer:json"`
	ActivePaperID string   `json:"activePaperId" gorm:"type:char(36)"`
}

func (WorkspaceModel) TableName() string { return "workspaces" }

// ContainsPaper reports whether the given paper is a member of the workspace.
func (w *WorkspaceModel) ContainsPaper(paperID string) bool {
	for _, id := range w.PaperIDs {
		if id == paperID {
			return true
		}
	}
	return false
}
