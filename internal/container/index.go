package container

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Malcolm-Mukorera/campus-events-api/config"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/application"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/infrastructure/search"
)

// OpenIndex returns the Elasticsearch event index, or nil when
// ELASTICSEARCH_ADDRS is empty.
func OpenIndex(cfg *config.Config, logger *logrus.Logger) (application.EventIndex, error) {
	addrs := cfg.ESAddrs()
	if len(addrs) == 0 {
		return nil, nil
	}
	es, err := search.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		return nil, fmt.Errorf("init elasticsearch client: %w", err)
	}
	return search.NewEventIndex(es, cfg.ESEventsIndex, logger), nil
}
