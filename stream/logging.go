// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package stream

import "github.com/sirupsen/logrus"

var log = logrus.WithField("subsys", "stream")
