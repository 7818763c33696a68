// Package services implements the driving port interfaces.
// Services contain the core reconciliation logic and orchestrate
// calls to driven ports (adapters).
//
// The only internal dependencies are the domain, the ports, the retry
// layer, the workbook reader and the logger.
package services
