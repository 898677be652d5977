package telemetry

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hostdash/hostdash/pkg/model"
)

const defaultPowerSupplyDir = "/sys/class/power_supply"

var errNoBattery = errors.New("no battery")

// readBattery reads the first battery under dir along with whether any mains
// adapter is online.
func readBattery(dir string) (*model.BatteryStatus, error) {
	supplies, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var bat *model.BatteryStatus
	plugged := false
	for _, s := range supplies {
		base := filepath.Join(dir, s.Name())
		switch readAttr(base, "type") {
		case "Battery":
			if bat != nil {
				continue
			}
			pct, err := strconv.ParseFloat(readAttr(base, "capacity"), 64)
			if err != nil {
				continue
			}
			status := readAttr(base, "status")
			bat = &model.BatteryStatus{Percent: pct, Status: status}
			if status == "Charging" || status == "Full" {
				plugged = true
			}
		case "Mains", "USB":
			if readAttr(base, "online") == "1" {
				plugged = true
			}
		}
	}
	if bat == nil {
		return nil, errNoBattery
	}
	bat.PluggedIn = plugged
	return bat, nil
}

func readAttr(dir, name string) string {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
