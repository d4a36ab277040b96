package kprofiler

import "github.com/vingarcia/kquery"

type multiProfiler []kquery.Profiler

// Multi returns a profiler that forwards every span to all
// the input profilers, nil profilers are ignored.
func Multi(profilers ...kquery.Profiler) kquery.Profiler {
	var m multiProfiler
	for _, p := range profilers {
		if p != nil {
			m = append(m, p)
		}
	}
	return m
}

func (m multiProfiler) Profile(event string, payload kquery.ProfilerPayload) kquery.ProfilerAction {
	var actions []kquery.ProfilerAction
	for _, p := range m {
		if action := p.Profile(event, payload); action != nil {
			actions = append(actions, action)
		}
	}

	if len(actions) == 0 {
		return nil
	}

	return kquery.ActionFunc(func(err error) {
		for _, action := range actions {
			action.End(err)
		}
	})
}
