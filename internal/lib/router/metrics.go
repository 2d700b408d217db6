package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	promEscrowBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Subsystem: "boxoffice",
		Name:      "router_escrow_balance",
	})
	promRoyaltyBps = promauto.NewGauge(prometheus.GaugeOpts{
		Subsystem: "boxoffice",
		Name:      "router_royalty_bps",
	})
	promPayeeBalance = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: "boxoffice",
		Name:      "router_payee_balance",
	}, []string{"payee"})
	promSalesSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "boxoffice",
		Name:      "router_sales_settled_total",
	}, []string{"operation"})
)
