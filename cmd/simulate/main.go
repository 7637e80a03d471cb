// Command simulate runs two clients on an in-memory radio bus against a
// live server: both sides discover each other, one waves, the other
// waves back, and the transcript shows the pair converging on a match.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"echogo/backend/internal/identity"
	"echogo/backend/internal/models"
	"echogo/backend/internal/proximity"
	"echogo/backend/internal/radio"
	"echogo/backend/internal/relay"
)

type actor struct {
	name    string
	client  *relay.Client
	relay   *relay.Relay
	engine  *proximity.Engine
	rotator *identity.Rotator
}

func newActor(ctx context.Context, name, addr string, bus *radio.SimBus, log *zap.Logger) (*actor, error) {
	alog := log.With(zap.String("actor", name))

	client := relay.NewClient(addr, alog)
	if err := client.EnsureSession(ctx); err != nil {
		return nil, err
	}
	if err := client.SetContactHandle(ctx, "@"+name); err != nil {
		return nil, err
	}

	state := relay.NewState()
	rel := relay.New(client, state, alog)
	go relay.NewListener(client, alog, rel.HandleEvent).Run(ctx)

	engine := proximity.NewEngine(bus.Adapter(name), alog,
		func(peers []proximity.Peer) {
			for _, p := range peers {
				fmt.Printf("[%s] sees %s in zone %q\n", name, p.Token, p.Zone)
			}
		},
		func(err error) {
			fmt.Printf("[%s] radio error: %v\n", name, err)
		})

	rotator := identity.NewRotator(client, alog, func(tok identity.Token) {
		engine.RotateToken(tok.Value, tok.ExpiresAt)
		state.InvalidateTokenGeneration()
	})
	rotator.Start()

	return &actor{name: name, client: client, relay: rel, engine: engine, rotator: rotator}, nil
}

// waitForToken blocks until the rotator has fetched the first token.
func (a *actor) waitForToken(ctx context.Context) error {
	for {
		if a.rotator.Current().Valid(time.Now()) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// firstPeer blocks until the engine has discovered at least one peer,
// ticking the bus to generate radio traffic.
func (a *actor) firstPeer(ctx context.Context, bus *radio.SimBus) (proximity.Peer, error) {
	for {
		bus.Tick()
		if peers := a.engine.Peers(); len(peers) > 0 {
			return peers[0], nil
		}
		select {
		case <-ctx.Done():
			return proximity.Peer{}, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	bus := radio.NewSimBus()
	bus.SetRSSI("alice", "bob", -48)

	alice, err := newActor(ctx, "alice", *addr, bus, log)
	if err != nil {
		fail(err)
	}
	bob, err := newActor(ctx, "bob", *addr, bus, log)
	if err != nil {
		fail(err)
	}

	for _, a := range []*actor{alice, bob} {
		if err := a.waitForToken(ctx); err != nil {
			fail(err)
		}
		if err := a.engine.Start(); err != nil {
			fail(err)
		}
		defer a.engine.Stop()
		defer a.rotator.Stop()
	}

	bobPeer, err := alice.firstPeer(ctx, bus)
	if err != nil {
		fail(err)
	}
	alicePeer, err := bob.firstPeer(ctx, bus)
	if err != nil {
		fail(err)
	}

	out, err := alice.relay.Wave(ctx, bobPeer.Token)
	if err != nil {
		fail(err)
	}
	fmt.Printf("[alice] wave at %s: %s\n", bobPeer.Token, out.Status)

	// Give the wave event a moment to reach bob's channel.
	time.Sleep(500 * time.Millisecond)
	fmt.Printf("[bob] incoming wave indicators: %v\n", bob.relay.State().Incoming())

	out, err = bob.relay.Wave(ctx, alicePeer.Token)
	if err != nil {
		fail(err)
	}
	fmt.Printf("[bob] wave back at %s: %s\n", alicePeer.Token, out.Status)
	if out.Status != models.StatusMatch {
		fail(fmt.Errorf("expected a match, got %s", out.Status))
	}

	time.Sleep(500 * time.Millisecond)
	for _, a := range []*actor{alice, bob} {
		for _, m := range a.relay.State().Matches() {
			fmt.Printf("[%s] matched with %s (%s)\n", a.name, m.MatchedUserID, m.ContactHandle)
		}
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "simulate:", err)
	os.Exit(1)
}
