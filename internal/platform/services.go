package platform

import (
	"context"
	"strings"
)

// ServiceLister enumerates service units enabled to start at boot.
type ServiceLister interface {
	// EnabledServices returns unit file names, for example
	// "cron.service", in the order the host reports them.
	EnabledServices(ctx context.Context) ([]string, error)
}

// SystemdLister queries systemctl for enabled service units.
type SystemdLister struct {
	Runner Runner
}

func (l *SystemdLister) EnabledServices(ctx context.Context) ([]string, error) {
	out, err := l.Runner.Run(ctx, "systemctl",
		"list-unit-files", "--type=service", "--state=enabled",
		"--no-legend", "--no-pager")
	if err != nil {
		return nil, err
	}
	var units []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if !strings.HasSuffix(fields[0], ".service") {
			continue
		}
		units = append(units, fields[0])
	}
	return units, nil
}
