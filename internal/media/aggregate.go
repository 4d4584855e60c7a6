package media

const dayLayout = "2006-01-02"

// Aggregate summarises views. Days are UTC calendar days and only days with at
// least one view appear in ViewsPerDay.
func Aggregate(views []View) Analytics {
	out := Analytics{
		TotalViews:  len(views),
		ViewsPerDay: make(map[string]int),
	}
	ips := make(map[string]struct{}, len(views))
	for _, v := range views {
		ips[v.ViewedByIP] = struct{}{}
		out.ViewsPerDay[v.Timestamp.UTC().Format(dayLayout)]++
	}
	out.UniqueIPs = len(ips)
	return out
}
