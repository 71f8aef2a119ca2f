// Package model groups the data types shared by the engine: chart
// definitions, the state contract, events and outcomes. The sub-packages
// carry no runtime behaviour beyond tree navigation.
package model
