package deploy

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ecogames/ecosale/internal/chain"
	"github.com/ecogames/ecosale/internal/config"
	"github.com/ecogames/ecosale/internal/sale"
	"github.com/ecogames/ecosale/internal/token"
	"github.com/ecogames/ecosale/internal/vesting"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

const stateFile = "state.json"

// Errors.
var (
	ErrNoState      = errors.New("no deployed state (run `ecosale init` first)")
	ErrStateCorrupt = errors.New("state file failed its integrity check")
)

// worldState is the serialized world.
type worldState struct {
	SavedAt     time.Time         `json:"savedAt"`
	ClockOffset time.Duration     `json:"clockOffset"`
	Owner       string            `json:"owner"`
	Native      chain.NativeState `json:"native"`
	Eco         token.State       `json:"eco"`
	Dai         token.State       `json:"dai"`
	Usdt        token.State       `json:"usdt"`
	Usdc        token.State       `json:"usdc"`
	Vesting     vesting.State     `json:"vesting"`
	Sale        sale.State        `json:"sale"`
}

// envelope wraps the state with a keccak256 checksum so a hand-edited or
// truncated file fails loudly instead of running with silently broken
// invariants.
type envelope struct {
	Checksum string          `json:"checksum"`
	State    json.RawMessage `json:"state"`
}

func checksum(data []byte) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Save writes the whole world to dir.
func (w *World) Save(dir string) error {
	offset := time.Duration(0)
	if oc, ok := w.Env.Clock().(*chain.OffsetClock); ok {
		offset = oc.Offset
	}
	st := worldState{
		SavedAt:     time.Now().UTC(),
		ClockOffset: offset,
		Owner:       w.Eco.Owner().Hex(),
		Native:      w.Env.ExportNative(),
		Eco:         w.Eco.Export(),
		Dai:         w.Dai.Export(),
		Usdt:        w.Usdt.Export(),
		Usdc:        w.Usdc.Export(),
		Vesting:     w.Vesting.Export(),
		Sale:        w.Sale.Export(),
	}
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	env := envelope{Checksum: checksum(payload), State: payload}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, stateFile), data, 0o600)
}

// Exists reports whether dir holds a saved world.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, stateFile))
	return err == nil
}

// Load rebuilds the world from dir. The restored clock is an offset clock so
// `ecosale clock advance` survives across invocations.
func Load(dir string, cfg *config.Config) (*World, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if os.IsNotExist(err) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("reading state: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing state envelope: %w", err)
	}
	if checksum(env.State) != env.Checksum {
		return nil, ErrStateCorrupt
	}

	var st worldState
	if err := json.Unmarshal(env.State, &st); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}

	w, err := Wire(cfg, &chain.OffsetClock{Offset: st.ClockOffset}, common.HexToAddress(st.Owner))
	if err != nil {
		return nil, err
	}
	w.Env.ImportNative(st.Native)
	w.Eco.Import(st.Eco)
	w.Dai.Import(st.Dai)
	w.Usdt.Import(st.Usdt)
	w.Usdc.Import(st.Usdc)
	w.Vesting.Import(st.Vesting)
	w.Sale.Import(st.Sale)
	return w, nil
}
