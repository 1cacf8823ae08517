package deployer

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// requireOwner is the single authorization gate for every administrative
// mutation.
func (d *Deployer) requireOwner(caller common.Address) error {
	if caller != d.owner {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller.Hex())
	}
	return nil
}

// UpdateTaxCollector replaces the fee recipient for future launches.
func (d *Deployer) UpdateTaxCollector(caller, collector common.Address) error {
	if err := d.requireOwner(caller); err != nil {
		return err
	}
	d.adminMu.Lock()
	defer d.adminMu.Unlock()
	d.taxCollector = collector
	d.logger.Info("tax collector updated", "collector", collector.Hex())
	return nil
}

// UpdateLiquidityLocker swaps the factory used to deploy lockers. Existing
// lockers are unaffected.
func (d *Deployer) UpdateLiquidityLocker(caller common.Address, lockers LockerFactory) error {
	if err := d.requireOwner(caller); err != nil {
		return err
	}
	if lockers == nil {
		return fmt.Errorf("locker factory must not be nil")
	}
	d.adminMu.Lock()
	defer d.adminMu.Unlock()
	d.lockers = lockers
	d.logger.Info("locker factory updated")
	return nil
}

// UpdateDefaultLockingPeriod changes the lock duration applied to future
// launches, in seconds.
func (d *Deployer) UpdateDefaultLockingPeriod(caller common.Address, seconds uint64) error {
	if err := d.requireOwner(caller); err != nil {
		return err
	}
	d.adminMu.Lock()
	defer d.adminMu.Unlock()
	d.lockDuration = seconds
	d.logger.Info("default locking period updated", "seconds", seconds)
	return nil
}

// UpdateProtocolFees sets the protocol's cut of position fees for future
// launches. No upper bound is enforced.
func (d *Deployer) UpdateProtocolFees(caller common.Address, fee uint64) error {
	if err := d.requireOwner(caller); err != nil {
		return err
	}
	d.adminMu.Lock()
	defer d.adminMu.Unlock()
	d.protocolFee = fee
	d.logger.Info("protocol fee updated", "fee", fee)
	return nil
}

func (d *Deployer) TaxCollector() common.Address {
	d.adminMu.RLock()
	defer d.adminMu.RUnlock()
	return d.taxCollector
}

func (d *Deployer) DefaultLockingPeriod() uint64 {
	d.adminMu.RLock()
	defer d.adminMu.RUnlock()
	return d.lockDuration
}

func (d *Deployer) ProtocolFees() uint64 {
	d.adminMu.RLock()
	defer d.adminMu.RUnlock()
	return d.protocolFee
}

func (d *Deployer) Owner() common.Address { return d.owner }
