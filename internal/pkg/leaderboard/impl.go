package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samber/do/v2"
	"github.com/valkey-io/valkey-go"
	"github.com/vreid/matchrank/internal/pkg/rating"
)

const (
	RankingKey     = "matchrank:leaderboard"
	UpdatesChannel = "matchrank:rating-updates"
)

// Publisher mirrors rating changes to an external leaderboard.
type Publisher interface {
	Publish(ctx context.Context, player rating.PlayerRating) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, rating.PlayerRating) error {
	return nil
}

type ValkeyPublisher struct {
	Client valkey.Client
}

// NewPublisher connects to valkey at the named "valkey-addr". Without an
// address rating changes stay local.
func NewPublisher(i do.Injector) (Publisher, error) {
	addr := do.MustInvokeNamed[string](i, "valkey-addr")
	if addr == "" {
		return NopPublisher{}, nil
	}

	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}

	return &ValkeyPublisher{Client: client}, nil
}

func (p *ValkeyPublisher) Publish(ctx context.Context, player rating.PlayerRating) error {
	payload, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	cmds := valkey.Commands{
		p.Client.B().Zadd().Key(RankingKey).ScoreMember().ScoreMember(player.ConservativeRating, player.ID).Build(),
		p.Client.B().Publish().Channel(UpdatesChannel).Message(string(payload)).Build(),
	}

	for _, resp := range p.Client.DoMulti(ctx, cmds...) {
		err := resp.Error()
		if err != nil {
			return fmt.Errorf("failed to publish rating of %s: %w", player.ID, err)
		}
	}

	return nil
}

func (p *ValkeyPublisher) Shutdown() {
	p.Client.Close()
}
