package team

import "fmt"

// Team is a real football club competing in one or more leagues.
type Team struct {
	ID        string
	Name      string
	Short     string
	TeamRefID int64
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}
