package analyzer

// Role is one of the conversational roles scored per participant.
type Role struct {
	Key         string
	Name        string
	Description string
	// AIScored marks roles the AI classification pass covers. Listener
	// and Joker are heuristic-only.
	AIScored bool
}

var Roles = []Role{
	{Key: "starter", Name: "Conversation Starter", Description: "Conversation Starter: Initiates conversations after long silences.", AIScored: true},
	{Key: "snubber", Name: "Snubber", Description: "Snubber: Often delays responses or gives short replies.", AIScored: true},
	{Key: "romantic", Name: "Romantic One", Description: "Romantic One: Uses affectionate language or emojis.", AIScored: true},
	{Key: "trouble", Name: "Trouble One", Description: "Trouble One: Sarcastic or teasing messages.", AIScored: true},
	{Key: "fault", Name: "At Fault", Description: "At Fault: Messages with blame or accusations.", AIScored: true},
	{Key: "listener", Name: "Listener", Description: "Listener: Asks questions and shows interest in others.", AIScored: false},
	{Key: "joker", Name: "Joker", Description: "Joker: Uses humor and makes jokes frequently.", AIScored: false},
}

// RoleByKey returns the role definition for a key, or nil.
func RoleByKey(key string) *Role {
	for i := range Roles {
		if Roles[i].Key == key {
			return &Roles[i]
		}
	}
	return nil
}
