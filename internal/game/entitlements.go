package game

type Entitlements interface {
	IsPremium(guildID string) bool
}

type PremiumList map[string]struct{}

func NewPremiumList(guildIDs ...string) PremiumList {
	list := make(PremiumList, len(guildIDs))
	for _, id := range guildIDs {
		if id != "" {
			list[id] = struct{}{}
		}
	}
	return list
}

func (p PremiumList) IsPremium(guildID string) bool {
	_, ok := p[guildID]
	return ok
}
