// Package controller reconciles the watched directory's on-disk
// modules against an in-memory deployment table.
package controller

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/wasmrunner/wasmrunner/internal/checksum"
	"github.com/wasmrunner/wasmrunner/internal/compiler"
	"github.com/wasmrunner/wasmrunner/internal/scanner"
	"github.com/wasmrunner/wasmrunner/log"
)

// State is the lifecycle stage of a deployed function. Deploying and
// Undeploying are observable only while a Tick holds the write lock;
// any read taken via List or Snapshot only ever sees Undeployed or
// Deployed.
type State int

const (
	Undeployed State = iota
	Deploying
	Deployed
	Undeploying
)

func (s State) String() string {
	switch s {
	case Undeployed:
		return "undeployed"
	case Deploying:
		return "deploying"
	case Deployed:
		return "deployed"
	case Undeploying:
		return "undeploying"
	default:
		return "unknown"
	}
}

// Record is one function's current deployment state.
type Record struct {
	Name     string
	FilePath string
	Checksum string
	State    State
	Artifact *compiler.Artifact
}

// Status is the externally visible view of a Record, without the
// internal Artifact pointer.
type Status struct {
	Name  string
	State State
}

const (
	intentUndeploy  = "undeploy"
	intentUndeployd = "undeployed"
	intentRedeploy  = "redeploy"
)

// Controller reconciles a watched directory against an in-memory
// deployment table on each Tick.
type Controller struct {
	mu       sync.RWMutex
	records  map[string]*Record
	lastErr  map[string]error
	dir      string
	scanner  *scanner.Scanner
	compiler *compiler.Compiler
}

// New constructs a Controller watching dir.
func New(dir string, sc *scanner.Scanner, c *compiler.Compiler) *Controller {
	return &Controller{
		records:  make(map[string]*Record),
		lastErr:  make(map[string]error),
		dir:      dir,
		scanner:  sc,
		compiler: c,
	}
}

// Tick runs one reconciliation pass: drops records whose backing file
// vanished, scans the directory for new or changed modules, drives
// each against the deployment table, then deletes consumed side-files.
func (c *Controller) Tick(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()

	for name, rec := range c.records {
		if _, err := os.Stat(rec.FilePath); err != nil {
			rec.Artifact = nil
			delete(c.records, name)
			delete(c.lastErr, name)
		}
	}

	entries, err := c.scanner.Scan(c.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		c.reconcileOne(ctx, entry)
	}

	for _, err := range c.scanner.DeleteSideFiles(c.dir) {
		log.WithField("dir", c.dir).Warnf("controller: side-file cleanup: %v", err)
	}

	log.WithFields(log.Fields{"tick_ms": time.Since(start).Milliseconds()}).Debug("controller: tick complete")

	return nil
}

func (c *Controller) reconcileOne(ctx context.Context, entry scanner.ScanEntry) {
	rec, exists := c.records[entry.Name]

	if entry.NextStatus == intentUndeploy || entry.NextStatus == intentUndeployd {
		if !exists {
			// Side-file names a function never observed on disk: log
			// and move on rather than treat it as an error.
			log.Warnf("controller: undeploy intent for unknown function %q", entry.Name)
			return
		}
		rec.State = Undeploying
		rec.Artifact = nil
		delete(c.records, entry.Name)
		delete(c.lastErr, entry.Name)
		return
	}

	sum, err := checksum.Sum(entry.Path)
	if err != nil {
		log.Errorf("controller: checksum %q: %v", entry.Name, err)
		c.lastErr[entry.Name] = err
		return
	}

	needsCompile := entry.NextStatus == intentRedeploy || !exists || (exists && rec.Checksum != sum)
	if !needsCompile {
		return
	}

	start := time.Now()

	if exists {
		rec.State = Deploying
	}

	raw, err := os.ReadFile(entry.Path)
	if err != nil {
		log.Errorf("controller: read %q: %v", entry.Name, err)
		c.lastErr[entry.Name] = err
		if exists {
			rec.State = Deployed
		}
		return
	}

	artifact, err := c.compiler.Compile(ctx, raw, entry.Path)
	if err != nil {
		log.Errorf("controller: compile %q: %v", entry.Name, err)
		c.lastErr[entry.Name] = err
		if exists {
			rec.State = Deployed
		}
		return
	}

	delete(c.lastErr, entry.Name)

	c.records[entry.Name] = &Record{
		Name:     entry.Name,
		FilePath: entry.Path,
		Checksum: sum,
		State:    Deployed,
		Artifact: artifact,
	}

	log.WithFields(log.Fields{
		"name":          entry.Name,
		"transition_ms": time.Since(start).Milliseconds(),
	}).Info("controller: deployed")
}

// LastError returns the error recorded by the most recent
// reconciliation attempt for name, or nil if the last attempt (or the
// only attempt so far) succeeded. Callers that need to surface a
// compile failure synchronously (rpc.service.Load) check this
// immediately after Tick returns.
func (c *Controller) LastError(name string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr[name]
}

// List returns every currently deployed function's status.
func (c *Controller) List() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Status, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, Status{Name: rec.Name, State: rec.State})
	}
	return out
}

// Snapshot returns a clone of name's compiled artifact for immediate
// use by the executor. The read lock is held only long enough to
// clone the O(1) Artifact handle; Execute never blocks on a compile.
func (c *Controller) Snapshot(name string) (*compiler.Artifact, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.records[name]
	if !ok || rec.State != Deployed {
		return nil, false
	}
	return rec.Artifact.Clone(), true
}
