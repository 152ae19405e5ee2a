package boost

import (
	"github.com/freqkit/freqkit/boostutils"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// CalculateStatistics sums the counters of every domain
func (d *Driver) CalculateStatistics(stats *boostutils.Statistics) {
	stats.Clear()
	for _, domain := range d.domains {
		domain.AddStatistics(stats)
	}
}

// BuildStatsString returns a JSON document describing every domain's state, last policy and counters
func (d *Driver) BuildStatsString() string {
	d.logger.Debug("Driver::BuildStatsString")

	writer := jwriter.NewWriter()
	root := writer.Object()

	var total boostutils.Statistics
	d.CalculateStatistics(&total)

	totalObj := root.Name("Total").Object()
	printStatistics(&totalObj, &total)
	totalObj.End()

	if d.stune != nil {
		stuneObj := root.Name("Stune").Object()
		stuneObj.Name("Tag").String(d.stune.tag)
		for kind := stuneKind(0); kind < stuneKindCount; kind++ {
			stuneObj.Name(kind.String()).Bool(d.stune.held(kind))
		}
		stuneObj.End()
	}

	domains := root.Name("Domains").Array()
	for _, domain := range d.domains {
		o := domains.Object()
		domain.printParameters(&o)
		o.End()
	}
	domains.End()

	root.End()
	return string(writer.Bytes())
}

func (d *Domain) printParameters(json *jwriter.ObjectState) {
	json.Name("ID").String(string(d.info.ID))
	json.Name("Class").String(d.info.Class.String())
	if d.info.Class == ClassCPU {
		json.Name("Tier").String(d.info.Tier.String())
	}
	json.Name("Wakeable").Bool(d.info.Wakeable)
	json.Name("Registered").Bool(d.Registered())
	json.Name("State").String(d.State().String())

	if policy, ok := d.Policy(); ok {
		policyObj := json.Name("Policy").Object()
		policyObj.Name("Floor").Int(int(policy.Floor))
		policyObj.Name("MaxBoost").Bool(policy.MaxBoost)
		policyObj.Name("Level").Int(policy.Level)
		policyObj.Name("Reason").String(policy.Reason.String())
		policyObj.End()
	}

	var stats boostutils.Statistics
	d.AddStatistics(&stats)
	statsObj := json.Name("Statistics").Object()
	printStatistics(&statsObj, &stats)
	statsObj.End()
}

func printStatistics(json *jwriter.ObjectState, stats *boostutils.Statistics) {
	json.Name("Kicks").Int(stats.Kicks)
	json.Name("Unboosts").Int(stats.Unboosts)
	json.Name("Applications").Int(stats.Applications)
	json.Name("ApplyFailures").Int(stats.ApplyFailures)
}
