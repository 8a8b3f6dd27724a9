// Package registry stores named scenario definitions, validated and compiled
// at registration time. It also owns loading definitions from YAML/JSON
// files and hot-reloading them when the scenario directory changes.
package registry
