package config

type WorkerKeyStruct struct {
	FinalizedScoresQueue string
}

var WorkerKey = &WorkerKeyStruct{
	FinalizedScoresQueue: "finalized_scores_queue",
}

// ScoreFinalizedRoutingKey is the broker routing key for persisted scores.
const ScoreFinalizedRoutingKey = "score.finalized"
