// Package qualitygate selects and runs a project's test suite before
// workflow steps that publish changes. A failing suite blocks the workflow.
package qualitygate
