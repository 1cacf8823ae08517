package locker

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/launchstate/launchpad-go/chainstate"
)

// Factory deploys locker instances at sequential creation addresses.
// Deployments made during an orchestrated launch are journaled.
type Factory struct {
	world   *chainstate.World
	address common.Address

	mu      sync.Mutex
	nonce   uint64
	lockers map[common.Address]*Locker
}

func NewFactory(world *chainstate.World, address common.Address) *Factory {
	return &Factory{
		world:   world,
		address: address,
		lockers: make(map[common.Address]*Locker),
	}
}

func (f *Factory) Address() common.Address { return f.address }

// Deploy creates a new locker scoped to one position. The locker does not
// hold the NFT yet; the caller transfers it and then calls Initialize.
func (f *Factory) Deploy(positions PositionCustodian, owner common.Address, duration, positionID, feeCut uint64) (*Locker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	addr := crypto.CreateAddress(f.address, f.nonce)
	if err := f.world.MarkDeployed(addr); err != nil {
		return nil, err
	}

	l := &Locker{
		address:    addr,
		positions:  positions,
		owner:      owner,
		duration:   duration,
		positionID: positionID,
		feeCut:     feeCut,
	}

	prevNonce := f.nonce
	f.nonce++
	f.lockers[addr] = l

	f.world.Journal(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.lockers, addr)
		f.nonce = prevNonce
	})
	return l, nil
}

// Locker returns a deployed locker by address.
func (f *Factory) Locker(addr common.Address) (*Locker, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lockers[addr]
	return l, ok
}
