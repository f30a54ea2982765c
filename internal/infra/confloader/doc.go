// Package confloader loads configuration with koanf and watches the
// configuration file with fsnotify.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (merged by the caller through LoadMap)
//  2. Environment variables (KEYMESH_ prefix, optionally seeded from .env)
//  3. The YAML configuration file
//  4. Defaults already present in the target struct
package confloader
