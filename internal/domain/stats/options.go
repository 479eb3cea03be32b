package stats

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithRecentWindow sets how many trailing games feed RecentWinPct.
func WithRecentWindow(n int) Option {
	return func(c *Calculator) {
		if n > 0 {
			c.recentWindow = n
		}
	}
}
