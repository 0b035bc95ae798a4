package domain

// Agent is a configured chat participant with a fixed role and a set of
// rooms it is natively allowed to act in.
type Agent struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName,omitempty"`
	Role        string   `json:"role,omitempty"`
	Rooms       []string `json:"rooms,omitempty"`
}

// Team is a named ordered group of agents sharing a set of rooms.
type Team struct {
	Name   string   `json:"name"`
	Agents []string `json:"agents"`
	Rooms  []string `json:"rooms,omitempty"`
}
