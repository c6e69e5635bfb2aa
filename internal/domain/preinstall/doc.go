// Package preinstall keeps the list of factory-shipped bundles.
//
// Rows record where a bundle's HAP files live and whether the user removed
// it, so the installer can restore or skip it on the next boot.
//
// Components:
//   - Table: mutex-guarded rows persisted through a Store
//   - Seeder: reads YAML, TOML and JSON factory lists at startup
//
// Example list (YAML):
//
//	bundles:
//	  - bundle_name: com.example.notes
//	    version_code: 3
//	    bundle_paths: [/system/app/notes/entry.hap]
//	    app_type: system
package preinstall
