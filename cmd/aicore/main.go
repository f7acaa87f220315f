// Command aicore is the decision core's process entrypoint: it loads
// configuration and the fuzzy rule file, wires the evaluator pool, opens
// (best-effort) telemetry, starts the debug server, and runs Nullkiller's
// turn loop against whatever GameEngine the embedding host supplies.
//
// Grounded on the teacher's own main.go: LoadConfig, log.Init, an AWS
// session, then Run()-and-block, generalized from a single game server
// process to an AI decision-core process with the same startup shape.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"

	"github.com/nullkiller/aicore/config"
	"github.com/nullkiller/aicore/evaluator"
	"github.com/nullkiller/aicore/fuzzy"
	"github.com/nullkiller/aicore/gameapi"
	"github.com/nullkiller/aicore/goal"
	"github.com/nullkiller/aicore/log"
	"github.com/nullkiller/aicore/mapmodel"
	"github.com/nullkiller/aicore/nullkiller"
	"github.com/nullkiller/aicore/pathfinder"
	"github.com/nullkiller/aicore/server"
	"github.com/nullkiller/aicore/telemetry"
)

const evaluatorPoolSize = 4

func main() {
	configPath := flag.String("config", "/etc/aicore/aicore.conf", "path to the aicore profile file")
	player := flag.Int("player", 1, "acting player ID")
	flag.Parse()

	profile, err := config.Load(*configPath)
	if err != nil {
		// log isn't initialized yet; Fatal only ever queues a log line, it
		// never exits, so an unloadable config must os.Exit itself.
		println("aicore: loading config: " + err.Error())
		os.Exit(1)
	}
	log.Init(profile.LogDirectory, log.InfoLevel, fmt.Sprintf("player%d", *player))

	if err := config.RuleFileExists(profile.RuleFilePath); err != nil {
		log.Fatal("aicore: fuzzy rule file: %v", err)
		os.Exit(1)
	}
	engine, err := fuzzy.LoadFile(profile.RuleFilePath)
	if err != nil {
		log.Fatal("aicore: parsing fuzzy rule file: %v", err)
		os.Exit(1)
	}

	playerID := mapmodel.PlayerID(*player)

	pool := evaluator.NewSharedPool(evaluatorPoolSize, func() *evaluator.PriorityEvaluator {
		return evaluator.New(engine.Clone(), playerID, 0)
	})

	store := openTelemetry(profile)
	if store != nil {
		defer store.Close()
	}

	debugServer := server.New(profile.DebugServerPort)
	go func() {
		if err := debugServer.Run(); err != nil {
			log.Error("aicore: debug server stopped: %v", err)
		}
	}()

	gameEngine := gameHost()
	states := gameapi.NewStateBuilder(gameEngine, gameEngine, playerID, pathfinder.Options{
		ScoutTurnDistanceLimit: int(profile.ScoutTurnDistance),
		MainTurnDistanceLimit:  int(profile.MainTurnDistance),
		HeroChainMaxTurns:      profile.NumChains,
	})

	observer := &telemetryObserver{server: debugServer, store: store}
	brain := nullkiller.New(playerID, states, pool)
	brain.SetObserver(observer)

	ctx := context.Background()
	turn := 0
	for {
		turn++
		observer.turn = turn

		if err := brain.MakeTurn(ctx, gameEngine); err != nil {
			log.Error("aicore: turn ended with error: %v", err)
		}
		if err := gameEngine.EndTurn(); err != nil {
			log.Fatal("aicore: ending turn: %v", err)
			os.Exit(1)
		}
	}
}

// openTelemetry opens the Postgres/DynamoDB telemetry backend, logging and
// continuing without it on failure: a turn loop that can't decide because
// its telemetry sink is down is a worse outcome than one that plays
// unobserved.
func openTelemetry(profile config.Profile) *telemetry.Store {
	sess, err := session.NewSessionWithOptions(session.Options{SharedConfigState: session.SharedConfigEnable})
	if err != nil {
		log.Error("aicore: creating AWS session, telemetry disabled: %v", err)
		return nil
	}
	counter := telemetry.NewTraceCounter(sess, "aicore", 100)

	store, err := telemetry.Open(profile, counter)
	if err != nil {
		log.Error("aicore: opening telemetry store, continuing unobserved: %v", err)
		return nil
	}
	return store
}

// telemetryObserver bridges Nullkiller's per-pass ranking into both the
// debug server's live snapshot and the telemetry store's persisted rows.
type telemetryObserver struct {
	server *server.Server
	store  *telemetry.Store
	turn   int
}

func (o *telemetryObserver) ObservePass(pass int, behaviorNames []string, tasks []goal.Task, chosen goal.Task) {
	ranking := make([]server.TaskSummary, len(tasks))
	chosenIndex := 0
	for i, t := range tasks {
		ranking[i] = server.SummarizeTask(behaviorNames[i], t)
		if t.Goal == chosen.Goal {
			chosenIndex = i
		}
	}

	o.server.Publish(server.TurnSnapshot{
		Pass:    pass,
		Chosen:  ranking[chosenIndex],
		Ranking: ranking,
	})

	if o.store == nil {
		return
	}
	if err := o.store.RecordTask(o.turn, behaviorNames[chosenIndex], chosen, telemetry.OutcomeExecuted, time.Now()); err != nil {
		log.Error("aicore: recording telemetry for pass %d: %v", pass, err)
	}
}

// gameEngineHost is the full collaborator surface the embedding host's
// GameEngine adapter must implement: reads (gameapi.GameEngine), writes
// (goal.Executor), creature static data (gameapi.ArmyConverter), and the
// turn-boundary call the spec's outer loop sits inside of.
type gameEngineHost interface {
	gameapi.GameEngine
	gameapi.ArmyConverter
	goal.Executor
	EndTurn() error
}

// gameHost resolves the live GameEngine the embedding host provides. No
// such host exists inside this repository: the decision core is a library
// consumed by a game engine, not a program with one built in, so this is
// the one place that process wiring stops instead of fabricating one.
func gameHost() gameEngineHost {
	log.Fatal("aicore: no GameEngine wired; the embedding host must supply one at startup")
	os.Exit(1)
	return nil
}
