package worker

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"
)

// heartbeatInterval is how often running workers refresh their registry row.
const heartbeatInterval = 10 * time.Second

// registry records worker liveness in the workers table so operators can see
// which processes are alive and what they have processed. All registry writes
// are best-effort: a registry failure never stops the worker.
type registry struct {
	db         *sql.DB
	workerID   string
	workerType string
}

func newRegistry(db *sql.DB, workerID, workerType string) *registry {
	return &registry{db: db, workerID: workerID, workerType: workerType}
}

func (r *registry) register() {
	_, err := r.db.Exec(`
		INSERT INTO workers (id, worker_type, hostname, status, started_at, last_heartbeat_at)
		VALUES ($1, $2, $3, 'running', NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			status = 'running',
			started_at = NOW(),
			last_heartbeat_at = NOW()`,
		r.workerID, r.workerType, getHostname())
	if err != nil {
		log.Printf("[%s] Worker registration failed: %v", r.workerType, err)
	}
}

func (r *registry) deregister() {
	r.db.Exec(`UPDATE workers SET status = 'stopped' WHERE id = $1`, r.workerID)
}

func (r *registry) heartbeat(stats map[string]int64) {
	statsJSON, _ := json.Marshal(stats)
	_, err := r.db.Exec(`
		UPDATE workers
		SET last_heartbeat_at = NOW(), stats = $2
		WHERE id = $1`,
		r.workerID, statsJSON)
	if err != nil {
		log.Printf("[%s] Heartbeat failed: %v", r.workerType, err)
	}
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}

// workerInstanceID builds a process-unique worker ID.
func workerInstanceID(prefix string) string {
	return fmt.Sprintf("%s-%s-%d", prefix, getHostname(), time.Now().UnixNano()%100000)
}
