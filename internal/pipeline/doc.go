// Package pipeline runs the periodic alert cycle: read the series, compose
// an alert, keep it as the latest, and publish it.
package pipeline
