package attendance

import (
	"encoding/json"
	"log"
)

// LogNotifier is the default Notifier: it writes each notification to
// the process log. Deployments with a real delivery channel inject
// their own implementation at wiring time.
type LogNotifier struct{}

func (n *LogNotifier) Send(kind string, payload map[string]interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	log.Printf("notify: %s %s", kind, string(data))
	return nil
}
