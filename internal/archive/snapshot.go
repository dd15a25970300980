package archive

import (
	"genesearch/internal/impact"
	"genesearch/internal/model"
)

// Snapshot exports the impacts as a persistent record. Identity, run and
// version fields are left to the caller. Gene impacts are deep copies.
func (ii *ImpactsOfIndividual) Snapshot() model.ImpactSnapshot {
	snap := model.ImpactSnapshot{
		Abstract:       ii.initialization.Abstract(),
		TemplateKeys:   ii.initialization.TemplateKeys(),
		Initialization: actionRecords(ii.initialization.All()),
		Actions:        actionRecords(ii.actions),
		Reached:        ii.ReachedTargets(),
	}
	for _, r := range ii.structure.Records() {
		snap.Structure = append(snap.Structure, model.StructureRecord{
			Key:       r.Key,
			Size:      r.Size,
			Times:     r.Times,
			BestTotal: r.BestTotal,
		})
	}
	return snap
}

func actionRecords(actions []*ImpactsOfAction) []model.ActionImpactRecord {
	out := make([]model.ActionImpactRecord, 0, len(actions))
	for _, a := range actions {
		rec := model.ActionImpactRecord{ActionName: a.ActionName}
		for _, id := range a.sortedIDs() {
			rec.GeneImpacts = append(rec.GeneImpacts, a.GeneImpacts[id].Copy())
		}
		if rec.GeneImpacts == nil {
			rec.GeneImpacts = []*impact.GeneImpact{}
		}
		out = append(out, rec)
	}
	return out
}
