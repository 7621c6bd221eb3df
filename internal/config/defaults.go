package config

import "time"

const defaultPort = 8080

func defaultKafka() Kafka {
	return Kafka{
		Brokers: nil,
		GroupID: "courier-dispatch",
	}
}

// Dispatch defaults match the authoritative service contract: a 5 km working
// range doubled at match time, courier walking speed 10 km/h and a 3 minute
// pickup buffer.
func defaultDispatch() Dispatch {
	return Dispatch{
		WorkingRangeKm:       5,
		MinWorkingRangeKm:    0.5,
		AvgSpeedKmh:          10,
		WaitingTimeHours:     0.05,
		ProximityToleranceKm: 0.2,
		MissThreshold:        5,
		NotifyDebounce:       69 * time.Second,
	}
}

func defaultTicks() Ticks {
	return Ticks{
		Dispatch:     5 * time.Second,
		Notification: 10 * time.Second,
		Cancellation: 5 * time.Second,
		SpeedRefresh: 20 * time.Second,
	}
}

func defaultPublisher() Publisher {
	return Publisher{
		QueueSize: 256,
		Workers:   4,
	}
}
