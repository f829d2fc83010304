package config

import "strings"

// JobsConfig configures the optional parameter ACL authorization strategy.
// Jobs created with the default strategy are unaffected.
type JobsConfig struct {
	// ACLStrategy names the non-default strategy. Empty disables it.
	ACLStrategy string `env:"JOBS_ACL_STRATEGY" envDefault:""`
	// ACLReaders maps each authorization parameter to its readers, written
	// as "param=user1|user2" entries separated by semicolons.
	ACLReaders map[string]string `env:"JOBS_ACL_READERS" envSeparator:";" envKeyValSeparator:"="`
}

// Sanitize normalizes the ACL strategy name.
func (j *JobsConfig) Sanitize() {
	j.ACLStrategy = strings.TrimSpace(j.ACLStrategy)
	if strings.EqualFold(j.ACLStrategy, "DEFAULT") {
		j.ACLStrategy = ""
	}
}

// ACLEnabled reports whether a parameter ACL strategy is configured.
func (j *JobsConfig) ACLEnabled() bool {
	return j.ACLStrategy != ""
}

// Readers returns the parsed reader lists keyed by authorization parameter.
func (j *JobsConfig) Readers() map[string][]string {
	out := make(map[string][]string, len(j.ACLReaders))
	for param, users := range j.ACLReaders {
		param = strings.TrimSpace(param)
		if param == "" {
			continue
		}
		var list []string
		for _, u := range strings.Split(users, "|") {
			if u = strings.TrimSpace(u); u != "" {
				list = append(list, u)
			}
		}
		out[param] = list
	}
	return out
}
