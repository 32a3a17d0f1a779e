package common

import (
	"context"
	"encoding/json"

	"github.com/fatih/structs"
	"github.com/questx-lab/prizeengine/pkg/pubsub"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
)

const (
	TokenTopic    = "token"
	RouletteTopic = "roulette"
	BatchTopic    = "batch"
)

// Event names.
const (
	EventTokenRevealed   = "token_revealed"
	EventTokenDelivered  = "token_delivered"
	EventTokenRedeemed   = "token_redeemed"
	EventTokenConsumed   = "token_consumed"
	EventBatchGenerated  = "batch_generated"
	EventRouletteSpun    = "roulette_spun"
	EventRouletteStopped = "roulette_stopped"
)

// Publish sends the event to topic keyed by key. The payload struct is
// flattened with its `structs` tags. Publishing is best effort, failures are
// only logged.
func Publish(ctx context.Context, publisher pubsub.Publisher, topic, event, key string, payload any) {
	msg := structs.Map(payload)
	msg["event"] = event

	b, err := json.Marshal(msg)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal event %s: %v", event, err)
		return
	}

	err = publisher.Publish(ctx, topic, &pubsub.Pack{Key: []byte(key), Msg: b})
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot publish event %s of %s: %v", event, key, err)
	}
}
