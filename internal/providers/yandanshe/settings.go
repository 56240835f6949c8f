package yandanshe

const (
	requestsSetting = "requests"
	periodSetting   = "period"

	defaultRequests = 5
	defaultPeriod   = 5
)

// Initialize applies the rate limit settings to the transport.
func (s *Source) Initialize() {
	s.applyRateLimit()
}

func (s *Source) HandleNotification(name string) {
	switch name {
	case "changeRequests", "changePeriod":
		s.applyRateLimit()
	}
}

func (s *Source) applyRateLimit() {
	if s.limiter == nil {
		return
	}

	requests := intSetting(s.settings, requestsSetting, defaultRequests)
	period := intSetting(s.settings, periodSetting, defaultPeriod)
	s.log.Debugf("rate limit: %d requests per %ds\n", requests, period)

	s.limiter.SetRequestLimit(requests)
	s.limiter.SetRequestPeriod(period)
}

func intSetting(settings Settings, key string, fallback int) int {
	if settings == nil {
		return fallback
	}

	v, ok := settings.Get(key)
	if !ok {
		return fallback
	}

	n, ok := asInt(v)
	if !ok || n <= 0 {
		return fallback
	}

	return n
}
