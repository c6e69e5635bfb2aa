// Package types provides the bundle manager data model.
//
// Records:
//   - InnerBundleInfo: canonical installed-bundle record owned by the registry
//   - InnerBundleUserInfo: per-user uid, gids and enablement
//   - PreInstallBundleInfo, ModuleUsageRecord: side-table rows
//
// Views (always copies):
//   - BundleInfo, ApplicationInfo, AbilityInfo, ExtensionAbilityInfo, HapModuleInfo
//
// Intents:
//   - Want: explicit element or implicit action/entities/uri/type
//   - Skill: declared filter, matched with Skill.Match and Skill.MatchLauncher
//
// Flags (BundleFlag, AbilityFlag, ApplicationFlag, ExtensionFlag) are bit sets
// selecting which substructures a view carries.
//
// Example Usage:
//
//	info := record.BundleInfoFor(types.GetBundleWithAbilities, types.DefaultUserID)
//	for _, a := range info.AbilityInfos {
//	    fmt.Println(a.ModuleName, a.Name)
//	}
package types
