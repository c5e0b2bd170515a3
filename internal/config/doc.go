// Package config loads the application configuration.
//
// # Configuration Sources
//
// Values are taken from the following sources, later ones winning:
//
//  1. Default values
//  2. config.yaml or configs/config.yaml, when present
//  3. Environment variables
//
// # Environment Variables
//
// Environment variables follow the pattern AVANCO_<SECTION>_<KEY>:
//
//	AVANCO_SERVER_PORT=8080
//	AVANCO_DATA_FILE=/srv/planilhas/CONSOLIDADO.xlsx
//	AVANCO_DATA_SHEET=CONSOLIDADO
//	AVANCO_DATA_TABLE_ROW_LIMIT=300
//	AVANCO_LOGGING_LEVEL=debug
//
// # Paths
//
// A relative data file is looked up in the working directory first and then
// next to the executable; see Paths.Resolve.
package config
