package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/kiryu-dev/battleship/internal/adapters/webapi"
	"github.com/kiryu-dev/battleship/internal/domain"
	"github.com/kiryu-dev/battleship/pkg/utils"
	"github.com/pkg/errors"
)

const usage = `commands:
  create <funds> <entry_fee> <ship>:<x>,<y>,<h|v> ...   e.g. create 85 0 destroyer:0,0,h cruiser:0,2,h battleship:0,4,h
  fire <funds> <game_id> <x> <y>
  peek <funds> <game_id> <num_shots>
  claim <game_id>
  game <game_id> | games | active | shot <game_id> <x> <y> | payouts <game_id> | stats [address] | health
  quit`

var errUsage = errors.New("bad arguments, type 'help'")

func main() {
	host := flag.String("addr", "localhost:8080", "server host")
	player := flag.String("player", uuid.NewString(), "player address")
	flag.Parse()

	u := url.URL{Scheme: "ws", Host: *host, Path: "/commands"}
	header := http.Header{domain.PlayerAddressHeader: []string{*player}}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		log.Fatal("dial: " + err.Error())
	}
	defer func() {
		_ = conn.Close()
	}()
	fmt.Printf("connected as %s\n%s\n", *player, usage)
	c := newClient(conn, webapi.New("http://"+*host), *player)
	if err := c.handleActions(context.Background()); err != nil {
		log.Fatal(err)
	}
}

type queries interface {
	Game(ctx context.Context, id uint64) (domain.GameView, error)
	RecentGames(ctx context.Context) ([]domain.GameView, error)
	ActiveGames(ctx context.Context) ([]uint64, error)
	Shot(ctx context.Context, id uint64, c domain.Coord) (domain.Shot, error)
	Payouts(ctx context.Context, id uint64) ([]domain.Payout, error)
	PlayerStats(ctx context.Context, address string) (domain.PlayerStats, error)
	HealthCheck(ctx context.Context) (*domain.HealthCheckResponse, error)
}

type client struct {
	conn    *websocket.Conn
	repo    queries
	player  string
	scanner *bufio.Scanner
}

func newClient(conn *websocket.Conn, repo queries, player string) *client {
	return &client{
		conn:    conn,
		repo:    repo,
		player:  player,
		scanner: bufio.NewScanner(os.Stdin),
	}
}

func (c *client) handleActions(ctx context.Context) error {
	for {
		fmt.Print("> ")
		if ok := c.scanner.Scan(); !ok {
			return c.scanner.Err()
		}
		args := strings.Fields(c.scanner.Text())
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "quit":
			return nil
		case "help":
			fmt.Println(usage)
			continue
		}
		result, err := c.run(ctx, args[0], args[1:])
		if err != nil {
			if errors.Is(err, domain.ErrConnectionClosed) {
				return err
			}
			fmt.Println("error:", err)
			continue
		}
		out, err := jsoniter.MarshalIndent(result, "", "  ")
		if err != nil {
			return errors.WithMessage(err, "marshal result")
		}
		fmt.Println(string(out))
	}
}

func (c *client) run(ctx context.Context, cmd string, args []string) (any, error) {
	switch cmd {
	case "create":
		if len(args) < 2 {
			return nil, errUsage
		}
		nums, err := parseInts(args[:2], 2)
		if err != nil {
			return nil, err
		}
		ships := make([]domain.Placement, 0, len(args)-2)
		for _, arg := range args[2:] {
			p, err := parsePlacement(arg)
			if err != nil {
				return nil, err
			}
			ships = append(ships, p)
		}
		return c.send(domain.Message{
			Type:    domain.CreateGameCommand,
			Funds:   domain.Amount(nums[0]),
			Payload: domain.CreateGamePayload{EntryFee: domain.Amount(nums[1]), Ships: ships},
		})
	case "fire":
		nums, err := parseInts(args, 4)
		if err != nil {
			return nil, err
		}
		return c.send(domain.Message{
			Type:    domain.FireShotCommand,
			Funds:   domain.Amount(nums[0]),
			Payload: domain.FireShotPayload{GameID: uint64(nums[1]), X: nums[2], Y: nums[3]},
		})
	case "peek":
		nums, err := parseInts(args, 3)
		if err != nil {
			return nil, err
		}
		return c.send(domain.Message{
			Type:    domain.PeekShotsCommand,
			Funds:   domain.Amount(nums[0]),
			Payload: domain.PeekShotsPayload{GameID: uint64(nums[1]), NumShots: nums[2]},
		})
	case "claim":
		nums, err := parseInts(args, 1)
		if err != nil {
			return nil, err
		}
		return c.send(domain.Message{
			Type:    domain.ClaimWinningsCommand,
			Payload: domain.ClaimWinningsPayload{GameID: uint64(nums[0])},
		})
	case "game":
		nums, err := parseInts(args, 1)
		if err != nil {
			return nil, err
		}
		return c.repo.Game(ctx, uint64(nums[0]))
	case "games":
		return c.repo.RecentGames(ctx)
	case "active":
		return c.repo.ActiveGames(ctx)
	case "shot":
		nums, err := parseInts(args, 3)
		if err != nil {
			return nil, err
		}
		return c.repo.Shot(ctx, uint64(nums[0]), domain.Coord{X: nums[1], Y: nums[2]})
	case "payouts":
		nums, err := parseInts(args, 1)
		if err != nil {
			return nil, err
		}
		return c.repo.Payouts(ctx, uint64(nums[0]))
	case "stats":
		address := c.player
		if len(args) > 0 {
			address = args[0]
		}
		return c.repo.PlayerStats(ctx, address)
	case "health":
		return c.repo.HealthCheck(ctx)
	default:
		return nil, errUsage
	}
}

// send writes one command and waits for its reply; the server answers
// commands in order.
func (c *client) send(msg domain.Message) (any, error) {
	if err := c.conn.WriteJSON(msg); err != nil {
		return nil, errors.WithMessagef(domain.ErrConnectionClosed, "write json msg: %v", err)
	}
	reply := new(domain.Message)
	if err := c.conn.ReadJSON(reply); err != nil {
		return nil, errors.WithMessagef(domain.ErrConnectionClosed, "read json msg: %v", err)
	}
	switch reply.Type {
	case domain.CommandAccepted:
		result, err := utils.Convert[domain.CommandResult](reply.Payload)
		if err != nil {
			return nil, errors.WithMessage(err, "unmarshal json to 'CommandResult' type")
		}
		return result, nil
	case domain.CommandRejected:
		rejection, err := utils.Convert[domain.RejectedPayload](reply.Payload)
		if err != nil {
			return nil, errors.WithMessage(err, "unmarshal json to 'RejectedPayload' type")
		}
		return nil, rejection.Err()
	default:
		return nil, errors.Errorf("unexpected reply type %d", reply.Type)
	}
}

func parseInts(args []string, want int) ([]int, error) {
	if len(args) != want {
		return nil, errUsage
	}
	nums := make([]int, 0, want)
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, errors.WithMessagef(errUsage, "'%s' is not a number", arg)
		}
		nums = append(nums, n)
	}
	return nums, nil
}

// parsePlacement reads "<ship>:<x>,<y>,<h|v>".
func parsePlacement(arg string) (domain.Placement, error) {
	name, rest, ok := strings.Cut(arg, ":")
	if !ok {
		return domain.Placement{}, errors.WithMessagef(errUsage, "placement '%s'", arg)
	}
	var p domain.Placement
	if err := p.Type.UnmarshalText([]byte(name)); err != nil {
		return domain.Placement{}, err
	}
	parts := strings.Split(rest, ",")
	if len(parts) != 3 {
		return domain.Placement{}, errors.WithMessagef(errUsage, "placement '%s'", arg)
	}
	nums, err := parseInts(parts[:2], 2)
	if err != nil {
		return domain.Placement{}, err
	}
	p.Start = domain.Coord{X: nums[0], Y: nums[1]}
	switch parts[2] {
	case "h":
		p.Horizontal = true
	case "v":
	default:
		return domain.Placement{}, errors.WithMessagef(errUsage, "orientation '%s'", parts[2])
	}
	return p, nil
}
