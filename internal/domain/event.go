package domain

const (
	EventNameSessionCompleted = "session.completed"
	EventNameRoundSubmitted   = "session.round_submitted"
	EventNameMasteryUpdated   = "mastery.updated"
)

type EventSessionCompleted struct {
	Summary Summary
}

func (EventSessionCompleted) Name() string { return EventNameSessionCompleted }

type EventRoundSubmitted struct {
	Result RoundResult
	UserID int64
}

func (EventRoundSubmitted) Name() string { return EventNameRoundSubmitted }

type EventMasteryUpdated struct {
	UserID  int64
	Updates []WordMastery
}

func (EventMasteryUpdated) Name() string { return EventNameMasteryUpdated }
