package notify

// Event is the payload of one notification. Kind doubles as the wire
// discriminator and as the message catalog key suffix.
type Event interface {
	Kind() string
}

const (
	KindChallenge         = "challenge"
	KindChallengeSent     = "challenge-sent"
	KindChallengeAccepted = "challenge-accepted"
	KindChallengeDeclined = "challenge-declined"
	KindMatchReminder     = "match-reminder"
	KindMatchResult       = "match-result"
)

// ChallengeReceived goes to the challenged player.
type ChallengeReceived struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Date        string `json:"date"`
	Slot        string `json:"timeSlot"`
	ChallengeID string `json:"challengeId"`
}

func (ChallengeReceived) Kind() string { return KindChallenge }

// ChallengeSent acknowledges the challenger's own action.
type ChallengeSent struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Date        string `json:"date"`
	Slot        string `json:"timeSlot"`
	ChallengeID string `json:"challengeId"`
}

func (ChallengeSent) Kind() string { return KindChallengeSent }

type ChallengeAccepted struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Date        string `json:"date"`
	Slot        string `json:"timeSlot"`
	Court       int    `json:"court"`
	ChallengeID string `json:"challengeId"`
}

func (ChallengeAccepted) Kind() string { return KindChallengeAccepted }

type ChallengeDeclined struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Date        string `json:"date"`
	Slot        string `json:"timeSlot"`
	ChallengeID string `json:"challengeId"`
}

func (ChallengeDeclined) Kind() string { return KindChallengeDeclined }

// MatchReminder fires on the morning of a booked match.
type MatchReminder struct {
	Player string `json:"player"`
	Date   string `json:"date"`
	Slot   string `json:"timeSlot"`
	Court  int    `json:"court"`
}

func (MatchReminder) Kind() string { return KindMatchReminder }

type MatchResult struct {
	Winner      string `json:"winner"`
	Loser       string `json:"loser"`
	Date        string `json:"date"`
	ChallengeID string `json:"challengeId"`
}

func (MatchResult) Kind() string { return KindMatchResult }
